package system

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"healthd/internal/domain"
	"healthd/internal/logger"
)

// StatFile reads cumulative cpu counters from a /proc/stat formatted file.
type StatFile struct {
	path string
	log  logger.Logger
}

func NewStatFile(path string, log logger.Logger) *StatFile {
	return &StatFile{path: path, log: log}
}

func (s *StatFile) ReadCounters(ctx context.Context) ([]domain.CounterRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		s.log.Debug("failed to open stat file", "path", s.path, "error", err.Error())
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	defer f.Close()

	rows, err := ParseCounters(f)
	if err != nil {
		s.log.Debug("failed to read stat file", "path", s.path, "error", err.Error())
		return nil, err
	}

	return rows, nil
}

// ParseCounters collects the leading block of cpu lines. Reading stops at
// the first line whose identifier does not start with "cpu". A row with a
// non-numeric field keeps no fields so that it is rejected downstream.
func ParseCounters(r io.Reader) ([]domain.CounterRow, error) {
	var rows []domain.CounterRow

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 || !domain.IsCounterIdentifier(tokens[0]) {
			break
		}

		rows = append(rows, domain.CounterRow{
			Identifier: tokens[0],
			Fields:     parseFields(tokens[1:]),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	return rows, nil
}

func parseFields(tokens []string) []uint64 {
	fields := make([]uint64, 0, len(tokens))

	for _, tok := range tokens {
		v, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			return nil
		}
		fields = append(fields, v)
	}

	return fields
}
