package chat

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MaxNicknameLength = 32
	MaxRoomLength     = 64
)

var (
	ErrNicknameEmpty    = errors.New("nickname cannot be empty")
	ErrNicknameTooLong  = errors.New("nickname exceeds maximum length")
	ErrNicknameReserved = errors.New("nickname is reserved")
	ErrRoomEmpty        = errors.New("room cannot be empty")
	ErrRoomTooLong      = errors.New("room exceeds maximum length")
)

var validate = newValidator()

type joinRequest struct {
	Nickname string `validate:"required,max=32,notreserved"`
	Room     string `validate:"required,max=64"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notreserved", func(fl validator.FieldLevel) bool {
		return !strings.EqualFold(fl.Field().String(), ServerNickname)
	})
	return v
}

// ValidateJoin trims the requested nickname and room and returns the Identity
// they describe. Whitespace-only values count as empty.
func ValidateJoin(nickname, room string) (Identity, error) {
	req := joinRequest{
		Nickname: strings.TrimSpace(nickname),
		Room:     strings.TrimSpace(room),
	}

	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return Identity{}, translate(fieldErrs[0])
		}
		return Identity{}, err
	}

	return Identity{Nickname: req.Nickname, Room: req.Room}, nil
}

func translate(fe validator.FieldError) error {
	switch fe.Field() + "." + fe.Tag() {
	case "Nickname.required":
		return ErrNicknameEmpty
	case "Nickname.max":
		return ErrNicknameTooLong
	case "Nickname.notreserved":
		return ErrNicknameReserved
	case "Room.required":
		return ErrRoomEmpty
	case "Room.max":
		return ErrRoomTooLong
	default:
		return fe
	}
}
