package metrics

import "errors"

var (
	ErrDirectoryCreation = errors.New("unable to create report directory")
	ErrReportWrite       = errors.New("unable to write report")
)
