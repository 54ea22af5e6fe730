package user_repo

import (
	"context"

	"github.com/malek283/shop-chat/internal/entity"
	app_error "github.com/malek283/shop-chat/internal/errors"
)

type UserRepoContract interface {
	FindByID(ctx context.Context, userID uint) (*entity.User, *app_error.AppError)
}
