package export

import (
	"encoding/csv"
	"io"
)

// NotDefined 缺值時的顯示文字，匯出檔不留空白欄位
const NotDefined = "not defined"

type Field struct {
	Label string
	Value string
}

// FlatRecord 一列匯出資料：有序的 欄位名稱 -> 已格式化字串
type FlatRecord []Field

func (r FlatRecord) With(label, value string) FlatRecord {
	if value == "" {
		value = NotDefined
	}
	return append(r, Field{Label: label, Value: value})
}

func (r FlatRecord) Labels() []string {
	labels := make([]string, len(r))
	for i, f := range r {
		labels[i] = f.Label
	}
	return labels
}

func (r FlatRecord) Values() []string {
	values := make([]string, len(r))
	for i, f := range r {
		values[i] = f.Value
	}
	return values
}

func (r FlatRecord) Get(label string) (string, bool) {
	for _, f := range r {
		if f.Label == label {
			return f.Value, true
		}
	}
	return "", false
}

// WriteCSV 第一列為欄位名稱，取自第一筆資料
func WriteCSV(w io.Writer, records []FlatRecord) error {
	cw := csv.NewWriter(w)
	if len(records) > 0 {
		if err := cw.Write(records[0].Labels()); err != nil {
			return err
		}
	}
	for _, record := range records {
		if err := cw.Write(record.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
