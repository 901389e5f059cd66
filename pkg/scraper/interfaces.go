package scraper

import "yandl/pkg/board"

// BoardClient is the board access the pipeline needs
type BoardClient interface {
	board.Fetcher
	BaseURL() string
}
