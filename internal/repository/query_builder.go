package repository

import (
	"fmt"
	"strings"
	"time"
)

// whereBuilder 組合動態 WHERE 條件，條件內的 %[1]d 會被替換成參數位置
type whereBuilder struct {
	conds []string
	args  []interface{}
}

func (w *whereBuilder) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *whereBuilder) raw(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *whereBuilder) search(term string, columns ...string) {
	if term == "" {
		return
	}
	parts := make([]string, 0, len(columns))
	for _, column := range columns {
		parts = append(parts, column+" ILIKE $%[1]d")
	}
	w.add("("+strings.Join(parts, " OR ")+")", "%"+term+"%")
}

// dateRange 以日期為單位，to 包含當天
func (w *whereBuilder) dateRange(column string, from, to *time.Time) {
	if from != nil {
		w.add(column+" >= $%[1]d", *from)
	}
	if to != nil {
		w.add(column+" < $%[1]d", to.AddDate(0, 0, 1))
	}
}

func (w *whereBuilder) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conds, " AND ")
}

// limit 回傳 LIMIT/OFFSET 子句與完整參數
func (w *whereBuilder) limit(perPage, offset int) (string, []interface{}) {
	args := append(append([]interface{}{}, w.args...), perPage, offset)
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}
