package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dhima/dbhelper/internal/database"
)

type Options struct {
	MaxWidth int // max width for each cell, 0 = 40
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	nullStyle   = cellStyle.Faint(true)
)

// Table writes rows under a header of columns, followed by a row count.
func Table(w io.Writer, columns []string, rows []database.Row, opts Options) {
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = 40
	}
	if len(columns) == 0 {
		fmt.Fprintln(w, "(no columns)")
		return
	}

	data := make([][]string, len(rows))
	nulls := make(map[[2]int]bool)
	for r, row := range rows {
		cells := make([]string, len(columns))
		for c := range columns {
			v := row.Index(c)
			if v == nil {
				nulls[[2]int{r, c}] = true
			}
			cells[c] = truncate(formatCell(v), opts.MaxWidth)
		}
		data[r] = cells
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(columns...).
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case nulls[[2]int{row, col}]:
				return nullStyle
			default:
				return cellStyle
			}
		})

	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, countLine(len(rows), "row", "in set"))
}

// Affected writes the outcome of a statement without a result set.
func Affected(w io.Writer, n int64) {
	fmt.Fprintln(w, countLine(int(n), "row", "affected"))
}

func countLine(n int, noun, suffix string) string {
	if n != 1 {
		noun += "s"
	}
	return fmt.Sprintf("(%d %s %s)", n, noun, suffix)
}

func formatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	switch t := v.(type) {
	case string:
		if isPrintable(t) {
			return t
		}
		return fmt.Sprintf("<blob %d bytes>", len(t))
	case []byte:
		s := string(t)
		if isPrintable(s) {
			return s
		}
		return fmt.Sprintf("<blob %d bytes>", len(t))
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "1"
		}
		return "0"
	case time.Time:
		return t.Format(time.DateTime)
	default:
		return fmt.Sprint(t)
	}
}

func isPrintable(s string) bool {
	for _, r := range s {
		if r < 32 && r != '\n' && r != '\t' {
			return false
		}
	}
	return true
}

func truncate(s string, w int) string {
	runes := []rune(s)
	if len(runes) <= w {
		return s
	}
	if w <= 3 {
		return string(runes[:w])
	}
	return strings.TrimRight(string(runes[:w-3]), " ") + "..."
}
