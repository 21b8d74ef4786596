package service

import (
	"context"
	"sort"
	"time"

	"user_admin/internal/model"
	"user_admin/internal/repository"
)

// fakeUserRepo is an in-memory UserRepository for service tests.
type fakeUserRepo struct {
	users  map[int]*model.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]*model.User), nextID: 1}
}

func copyUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	cp := *u
	if u.ResetPasswordToken != nil {
		token := *u.ResetPasswordToken
		cp.ResetPasswordToken = &token
	}
	if u.ResetPasswordExpires != nil {
		expires := *u.ResetPasswordExpires
		cp.ResetPasswordExpires = &expires
	}
	return &cp
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindAll(_ context.Context) ([]model.User, error) {
	var users []model.User
	for _, u := range r.users {
		users = append(users, *copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	for id, existing := range r.users {
		if id != user.ID && existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	stored, ok := r.users[user.ID]
	if !ok {
		return ErrUserNotFound
	}
	stored.Email = user.Email
	stored.PasswordHash = user.PasswordHash
	stored.Role = user.Role
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, username string) (bool, error) {
	for id, u := range r.users {
		if u.Username == username {
			delete(r.users, id)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) SetResetToken(_ context.Context, userID int, token string, expires time.Time) error {
	u, ok := r.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.ResetPasswordToken = &token
	u.ResetPasswordExpires = &expires
	return nil
}

func (r *fakeUserRepo) RedeemResetToken(_ context.Context, token, passwordHash string) (bool, error) {
	for _, u := range r.users {
		if u.ResetPasswordToken != nil && *u.ResetPasswordToken == token &&
			u.ResetPasswordExpires != nil && u.ResetPasswordExpires.After(time.Now()) {
			u.PasswordHash = passwordHash
			u.ResetPasswordToken = nil
			u.ResetPasswordExpires = nil
			return true, nil
		}
	}
	return false, nil
}

// mustGet returns the stored record for a username, bypassing copies.
func (r *fakeUserRepo) mustGet(username string) *model.User {
	for _, u := range r.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

// fakeMailer records outbound mail; set err to simulate delivery failure.
type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}
