// Package timestamp кодирует зонированные метки времени в пару (момент, идентификатор смещения)
// для хранения и восстанавливает их с точностью до исходного смещения UTC.
package timestamp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // регионы IANA должны разбираться независимо от окружения
)

// ErrInvalidOffset возвращается, когда сохраненный идентификатор смещения не удается разобрать
var ErrInvalidOffset = errors.New("invalid offset id")

// maxOffsetSeconds ограничивает смещение диапазоном ±18:00
const maxOffsetSeconds = 18 * 60 * 60

// Encode раскладывает метку времени на момент в UTC и идентификатор смещения.
// Для nil возвращает (nil, nil).
func Encode(ts *time.Time) (*time.Time, *string) {
	if ts == nil {
		return nil, nil
	}

	instant := ts.UTC()
	_, offset := ts.Zone()
	id := OffsetID(offset)

	return &instant, &id
}

// Decode собирает метку времени из момента и идентификатора смещения.
// Если хотя бы одно из значений nil, результат тоже nil.
func Decode(instant *time.Time, offsetID *string) (*time.Time, error) {
	if instant == nil || offsetID == nil {
		return nil, nil
	}

	loc, err := Location(*offsetID)
	if err != nil {
		return nil, err
	}

	ts := instant.In(loc)
	return &ts, nil
}

// Equal сравнивает метки времени с учетом смещения, а не только момента
func Equal(a, b time.Time) bool {
	_, offA := a.Zone()
	_, offB := b.Zone()
	return a.Equal(b) && offA == offB
}

// OffsetID форматирует смещение в секундах как Z, +HH:MM или +HH:MM:SS
func OffsetID(offset int) string {
	if offset == 0 {
		return "Z"
	}

	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}

	hours := offset / 3600
	minutes := (offset % 3600) / 60
	seconds := offset % 60

	if seconds != 0 {
		return fmt.Sprintf("%c%02d:%02d:%02d", sign, hours, minutes, seconds)
	}
	return fmt.Sprintf("%c%02d:%02d", sign, hours, minutes)
}

// Location разбирает идентификатор смещения или региона IANA
func Location(id string) (*time.Location, error) {
	switch {
	case id == "":
		return nil, fmt.Errorf("%w: empty", ErrInvalidOffset)
	case id == "Z":
		return time.UTC, nil
	case id[0] == '+' || id[0] == '-':
		offset, err := parseOffset(id)
		if err != nil {
			return nil, err
		}
		if offset == 0 {
			return time.UTC, nil
		}
		return time.FixedZone("", offset), nil
	}

	// "Local" зависит от машины и не является переносимым идентификатором
	if id == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOffset, id)
	}

	loc, err := time.LoadLocation(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOffset, id)
	}
	return loc, nil
}

// parseOffset принимает ±HH, ±HHMM, ±HH:MM и ±HH:MM:SS
func parseOffset(id string) (int, error) {
	invalid := fmt.Errorf("%w: %q", ErrInvalidOffset, id)

	sign := 1
	if id[0] == '-' {
		sign = -1
	}
	body := id[1:]

	var parts []string
	switch {
	case strings.Contains(body, ":"):
		parts = strings.Split(body, ":")
		if len(parts) > 3 {
			return 0, invalid
		}
	case len(body) == 2:
		parts = []string{body}
	case len(body) == 4:
		parts = []string{body[:2], body[2:]}
	default:
		return 0, invalid
	}

	var values [3]int
	for i, p := range parts {
		// Atoi допускает знак, поэтому цифры проверяем явно
		if len(p) != 2 || !isDigit(p[0]) || !isDigit(p[1]) {
			return 0, invalid
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return 0, invalid
		}
		values[i] = v
	}

	if values[1] > 59 || values[2] > 59 {
		return 0, invalid
	}

	offset := values[0]*3600 + values[1]*60 + values[2]
	if offset > maxOffsetSeconds {
		return 0, invalid
	}

	return sign * offset, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
