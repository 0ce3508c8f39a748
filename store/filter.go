package store

// Cond is an exact-match condition on one column. With IsNull set it matches
// NULL; otherwise it matches any of Values, and an empty Values matches
// nothing.
type Cond struct {
	Column string
	Values []interface{}
	IsNull bool
}

// Filter selects rows by a conjunction of conditions.
type Filter struct {
	Conds   []Cond
	OrderBy string
	Desc    bool
	Limit   int
}

// All matches every row.
func All() Filter {
	return Filter{}
}

// Where starts a filter matching column against any of values.
func Where(column string, values ...interface{}) Filter {
	return All().And(column, values...)
}

// In is Where for a string slice, the common case for id sets.
func In(column string, ids []string) Filter {
	return All().AndIn(column, ids)
}

func (f Filter) And(column string, values ...interface{}) Filter {
	f.Conds = append(append([]Cond(nil), f.Conds...), Cond{Column: column, Values: values})
	return f
}

func (f Filter) AndIn(column string, ids []string) Filter {
	values := make([]interface{}, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return f.And(column, values...)
}

func (f Filter) AndNull(column string) Filter {
	f.Conds = append(append([]Cond(nil), f.Conds...), Cond{Column: column, IsNull: true})
	return f
}

func (f Filter) Order(column string, desc bool) Filter {
	f.OrderBy = column
	f.Desc = desc
	return f
}

func (f Filter) Take(n int) Filter {
	f.Limit = n
	return f
}

// Columns lists every column the filter refers to.
func (f Filter) Columns() []string {
	cols := make([]string, 0, len(f.Conds)+1)
	for _, c := range f.Conds {
		cols = append(cols, c.Column)
	}
	if f.OrderBy != "" {
		cols = append(cols, f.OrderBy)
	}
	return cols
}
