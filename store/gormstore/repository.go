package gormstore

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"metahire/store"
)

var errUnconditionalDelete = errors.New("refusing to delete without a condition")

type repository[T any] struct {
	db      *gorm.DB
	schemas *sync.Map
}

func (r *repository[T]) schema() (*schema.Schema, error) {
	return schema.Parse(new(T), r.schemas, r.db.NamingStrategy)
}

func (r *repository[T]) checkColumns(cols ...string) error {
	sch, err := r.schema()
	if err != nil {
		return err
	}
	for _, col := range cols {
		if field := sch.LookUpField(col); field == nil || field.DBName == "" {
			return fmt.Errorf("%w: %s.%s", store.ErrUnknownColumn, sch.Table, col)
		}
	}
	return nil
}

func (r *repository[T]) scoped(ctx context.Context, f store.Filter) (*gorm.DB, error) {
	if err := r.checkColumns(f.Columns()...); err != nil {
		return nil, err
	}

	q := r.db.WithContext(ctx).Model(new(T))
	for _, c := range f.Conds {
		col := clause.Column{Name: c.Column}
		switch {
		case c.IsNull:
			q = q.Where(clause.Eq{Column: col, Value: nil})
		case len(c.Values) == 0:
			q = q.Where("1 = 0")
		case len(c.Values) == 1:
			q = q.Where(clause.Eq{Column: col, Value: plain(c.Values[0])})
		default:
			values := make([]interface{}, len(c.Values))
			for i, v := range c.Values {
				values[i] = plain(v)
			}
			q = q.Where(clause.IN{Column: col, Values: values})
		}
	}
	if f.OrderBy != "" {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: f.OrderBy}, Desc: f.Desc})
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	return q, nil
}

func (r *repository[T]) FindByID(ctx context.Context, id string) (*T, error) {
	var row T
	err := r.db.WithContext(ctx).Take(&row, clause.Eq{Column: clause.PrimaryColumn, Value: id}).Error
	if err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (r *repository[T]) FindWhere(ctx context.Context, f store.Filter) ([]T, error) {
	q, err := r.scoped(ctx, f)
	if err != nil {
		return nil, err
	}
	rows := []T{}
	if err := q.Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

func (r *repository[T]) Count(ctx context.Context, f store.Filter) (int64, error) {
	f.OrderBy, f.Limit = "", 0
	q, err := r.scoped(ctx, f)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, translate(err)
	}
	return n, nil
}

func (r *repository[T]) Insert(ctx context.Context, rows ...*T) error {
	if len(rows) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(rows).Error)
}

func (r *repository[T]) Update(ctx context.Context, row *T) error {
	res := r.db.WithContext(ctx).Model(row).Omit(clause.Associations).Select("*").Updates(row)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *repository[T]) UpdateWhere(ctx context.Context, f store.Filter, changes map[string]interface{}) (int64, error) {
	if len(changes) == 0 {
		return 0, nil
	}
	cols := make([]string, 0, len(changes))
	values := make(map[string]interface{}, len(changes))
	for col, v := range changes {
		cols = append(cols, col)
		values[col] = plain(v)
	}
	if err := r.checkColumns(cols...); err != nil {
		return 0, err
	}

	q, err := r.scoped(ctx, f)
	if err != nil {
		return 0, err
	}
	if len(f.Conds) == 0 {
		q = q.Session(&gorm.Session{AllowGlobalUpdate: true})
	}
	res := q.Updates(values)
	return res.RowsAffected, translate(res.Error)
}

func (r *repository[T]) Delete(ctx context.Context, f store.Filter) (int64, error) {
	if len(f.Conds) == 0 {
		return 0, errUnconditionalDelete
	}
	q, err := r.scoped(ctx, f)
	if err != nil {
		return 0, err
	}
	res := q.Delete(new(T))
	return res.RowsAffected, translate(res.Error)
}

// plain converts named string types to string so every driver binds them.
func plain(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.String {
		return rv.String()
	}
	return rv.Interface()
}
