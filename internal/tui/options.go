package tui

import "github.com/atotto/clipboard"

type BoardConfig struct {
	ShowDetail   bool
	DimCompleted bool
}

type Option func(*Model)

func DefaultBoardConfig() BoardConfig {
	return BoardConfig{
		ShowDetail:   true,
		DimCompleted: true,
	}
}

func WithBoardConfig(cfg BoardConfig) Option {
	return func(m *Model) {
		m.board = cfg
	}
}

func WithLogger(logger Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithSource labels the header with the server the board comes from.
func WithSource(source string) Option {
	return func(m *Model) {
		m.source = source
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}

func writeClipboard(text string) error {
	return clipboard.WriteAll(text)
}
