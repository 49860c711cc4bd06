package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-manager/internal/errs"
	"github.com/Astemirdum/library-manager/internal/model"
)

var userColumns = []string{"id", "name", "email", "password", "phone", "is_admin", "is_deleted", "created_at"}

var userSortCols = map[string]string{
	"date":  "created_at",
	"name":  "name",
	"email": "email",
}

func (r *Repository) ListUsers(ctx context.Context, filter model.UserFilter, page model.PageQuery) (model.UserList, error) {
	conds := []sq.Sqlizer{sq.Eq{"is_deleted": false}}
	if filter.Name != "" {
		conds = append(conds, sq.ILike{"name": fmt.Sprint("%", filter.Name, "%")})
	}
	if filter.Email != "" {
		conds = append(conds, sq.ILike{"email": fmt.Sprint("%", filter.Email, "%")})
	}

	base := qb.Select(userColumns...).From(usersTableName)
	countQ := qb.Select("count(*)").From(usersTableName)
	for _, c := range conds {
		base = base.Where(c)
		countQ = countQ.Where(c)
	}

	items, meta, err := queryPage[model.User](ctx, r.db, base, countQ, page, userSortCols, "id asc")
	if err != nil {
		return model.UserList{}, err
	}
	return model.UserList{Meta: meta, Items: items}, nil
}

func (r *Repository) GetUser(ctx context.Context, id int64) (model.User, error) {
	query, args, err := qb.Select(userColumns...).
		From(usersTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.User{}, err
	}

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errs.ErrNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	query, args, err := qb.Select(userColumns...).
		From(usersTableName).
		Where(sq.Eq{"email": email, "is_deleted": false}).
		ToSql()
	if err != nil {
		return model.User{}, err
	}

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errs.ErrNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

func (r *Repository) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	query, args, err := qb.Insert(usersTableName).
		Columns("name", "email", "password", "phone").
		Values(user.Name, user.Email, user.Password, user.Phone).
		Suffix("returning " + strings.Join(userColumns, ", ")).
		ToSql()
	if err != nil {
		return model.User{}, err
	}

	var created model.User
	if err := r.db.GetContext(ctx, &created, query, args...); err != nil {
		if isUniqueViolation(err) {
			return model.User{}, errs.ErrEmailExists
		}
		r.log.Error("CreateUser", zap.String("q", query))
		return model.User{}, err
	}
	return created, nil
}

func (r *Repository) UpdateUser(ctx context.Context, id int64, req model.UpdateUserRequest) (model.User, error) {
	upd := qb.Update(usersTableName).
		Where(sq.Eq{"id": id, "is_deleted": false}).
		Suffix("returning " + strings.Join(userColumns, ", "))
	if req.Name != nil {
		upd = upd.Set("name", *req.Name)
	}
	if req.Phone != nil {
		upd = upd.Set("phone", *req.Phone)
	}

	query, args, err := upd.ToSql()
	if err != nil {
		return model.User{}, err
	}

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errs.ErrNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

func (r *Repository) PromoteAdmin(ctx context.Context, id int64) (model.User, error) {
	query, args, err := qb.Update(usersTableName).
		Set("is_admin", true).
		Where(sq.Eq{"id": id, "is_deleted": false}).
		Suffix("returning " + strings.Join(userColumns, ", ")).
		ToSql()
	if err != nil {
		return model.User{}, err
	}

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errs.ErrNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

func (r *Repository) SoftDeleteUser(ctx context.Context, id int64) (model.User, error) {
	query, args, err := qb.Update(usersTableName).
		Set("is_deleted", true).
		Where(sq.Eq{"id": id}).
		Suffix("returning " + strings.Join(userColumns, ", ")).
		ToSql()
	if err != nil {
		return model.User{}, err
	}

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errs.ErrNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

func (r *Repository) HardDeleteUser(ctx context.Context, id int64) (model.User, error) {
	query, args, err := qb.Delete(usersTableName).
		Where(sq.Eq{"id": id}).
		Suffix("returning " + strings.Join(userColumns, ", ")).
		ToSql()
	if err != nil {
		return model.User{}, err
	}

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errs.ErrNotFound
		}
		return model.User{}, err
	}
	return user, nil
}
