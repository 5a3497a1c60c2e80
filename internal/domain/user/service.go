package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegistrationInput carries the fields required to finish onboarding after
// the account itself exists.
type RegistrationInput struct {
	Phone    string  `json:"phone"`
	FullName string  `json:"full_name"`
	Email    *string `json:"email,omitempty"`
	Age      int     `json:"age"`
	Gender   string  `json:"gender"`
	Address  *string `json:"address,omitempty"`
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, patch ProfilePatch) (*User, error) {
	return s.repo.Update(ctx, id, patch)
}

// CompleteRegistration validates the mandatory onboarding fields and writes
// them to the profile in one update.
func (s *Service) CompleteRegistration(ctx context.Context, id uuid.UUID, in RegistrationInput) (*User, error) {
	if in.Phone == "" {
		return nil, fmt.Errorf("phone is required")
	}
	if in.FullName == "" {
		return nil, fmt.Errorf("full name is required")
	}
	if in.Age < 1 {
		return nil, fmt.Errorf("valid age is required")
	}
	if in.Gender == "" {
		return nil, fmt.Errorf("gender is required")
	}

	patch := ProfilePatch{
		Phone:    &in.Phone,
		FullName: &in.FullName,
		Age:      &in.Age,
		Gender:   &in.Gender,
		Email:    in.Email,
		Address:  in.Address,
	}
	return s.repo.Update(ctx, id, patch)
}
