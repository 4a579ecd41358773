package export

import (
	"strings"
	"time"

	"go-gin-gift-admin/config"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const defaultDateLayout = "02/01/2006 15:04"

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"CDF": "FC",
	"XAF": "FCFA",
}

// Formatter 將日期與金額轉成顯示用字串
type Formatter struct {
	location *time.Location
	layout   string
	printer  *message.Printer
}

func NewFormatter(cfg config.ExportConfig) (*Formatter, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	tag, err := language.Parse(cfg.Locale)
	if err != nil {
		return nil, err
	}
	layout := cfg.DateLayout
	if layout == "" {
		layout = defaultDateLayout
	}
	return &Formatter{
		location: loc,
		layout:   layout,
		printer:  message.NewPrinter(tag),
	}, nil
}

// DefaultFormatter UTC、英文數字格式
func DefaultFormatter() *Formatter {
	return &Formatter{
		location: time.UTC,
		layout:   defaultDateLayout,
		printer:  message.NewPrinter(language.English),
	}
}

func (f *Formatter) Location() *time.Location {
	return f.location
}

func (f *Formatter) Date(t time.Time) string {
	if t.IsZero() {
		return NotDefined
	}
	return t.In(f.location).Format(f.layout)
}

func (f *Formatter) DatePtr(t *time.Time) string {
	if t == nil {
		return NotDefined
	}
	return f.Date(*t)
}

// Money 金額固定兩位小數，後面接幣別符號
func (f *Formatter) Money(amount float64, code string) string {
	value := f.printer.Sprint(number.Decimal(amount, number.Scale(2)))
	symbol := Symbol(code)
	if symbol == "" {
		return value
	}
	return value + " " + symbol
}

func (f *Formatter) Text(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotDefined
	}
	return s
}

func (f *Formatter) TextPtr(s *string) string {
	if s == nil {
		return NotDefined
	}
	return f.Text(*s)
}

// Symbol 回傳幣別符號，未知幣別回傳 ISO 代碼
func Symbol(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return strings.ToUpper(code)
	}
	if symbol, ok := currencySymbols[unit.String()]; ok {
		return symbol
	}
	return unit.String()
}
