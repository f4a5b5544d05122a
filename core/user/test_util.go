package user

import (
	"context"

	"github.com/mwalimu/darasa/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a user service whose side effects run synchronously.
func NewServiceMock(repo Repository, mailSvc core.EmailService) ServiceInterface {
	initTokenGenerator(core.Conf)
	return &serviceMock{
		service: service{
			repo:    repo,
			mailSvc: mailSvc,
		},
	}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}
