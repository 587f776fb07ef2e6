package errs

import "errors"

var (
	ScrapeTaskNotFound     = errors.New("scrape task not found")
	ScrapeTaskNotDeletable = errors.New("only pending or failed tasks can be deleted")
)

func IsScrapeTaskNotFound(err error) bool {
	return errors.Is(err, ScrapeTaskNotFound)
}

func IsScrapeTaskNotDeletable(err error) bool {
	return errors.Is(err, ScrapeTaskNotDeletable)
}
