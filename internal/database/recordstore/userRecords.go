package recordstore

import (
	"context"
	"fmt"

	"github.com/ticketforge/ticketforge/internal/database"
	"github.com/ticketforge/ticketforge/internal/entity"
)

type userRepository struct {
	client *Client
}

func NewUserRepository(client *Client) database.UserRepository {
	return &userRepository{client: client}
}

// Create registers the user with the provider. The provider hashes
// credentials itself, so this driver's hash step is the identity and
// PasswordHash still holds the raw credential here; it is forwarded as
// password/passwordConfirm and never stored verbatim.
func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	fields := map[string]interface{}{
		"email":           user.Email,
		"name":            user.Name,
		"avatar_url":      user.AvatarURL,
		"password":        user.PasswordHash,
		"passwordConfirm": user.PasswordHash,
	}

	var created entity.User
	if err := r.client.createRecord(ctx, collectionUsers, fields, &created); err != nil {
		return fmt.Errorf("failed to create user record: %w", err)
	}
	user.ID = created.ID
	user.CreatedAt = created.CreatedAt
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	if err := r.client.getRecord(ctx, collectionUsers, id, &user); err != nil {
		if err == errNotFound {
			return nil, entity.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var users []*entity.User
	filter := fmt.Sprintf(`email="%s"`, email)
	if err := r.client.listRecords(ctx, collectionUsers, filter, "", &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, entity.ErrUserNotFound
	}
	return users[0], nil
}

type authenticator struct {
	client *Client
}

func NewAuthenticator(client *Client) database.Authenticator {
	return &authenticator{client: client}
}

func (a *authenticator) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	user, _, err := a.client.AuthWithPassword(ctx, email, password)
	return user, err
}

type profileRepository struct {
	client *Client
}

func NewProfileRepository(client *Client) database.ProfileRepository {
	return &profileRepository{client: client}
}

func (r *profileRepository) Create(ctx context.Context, profile *entity.Profile) error {
	fields := map[string]interface{}{
		"user_id":  profile.UserID,
		"username": profile.Username,
		"bio":      profile.Bio,
	}

	var created entity.Profile
	if err := r.client.createRecord(ctx, collectionProfiles, fields, &created); err != nil {
		return fmt.Errorf("failed to create profile record: %w", err)
	}
	profile.ID = created.ID
	profile.CreatedAt = created.CreatedAt
	return nil
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*entity.Profile, error) {
	var profiles []*entity.Profile
	filter := fmt.Sprintf(`user_id="%s"`, userID)
	if err := r.client.listRecords(ctx, collectionProfiles, filter, "", &profiles); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, entity.ErrUserNotFound
	}
	return profiles[0], nil
}

func (r *profileRepository) Update(ctx context.Context, profile *entity.Profile) error {
	existing, err := r.GetByUserID(ctx, profile.UserID)
	if err != nil {
		return err
	}

	fields := map[string]interface{}{
		"username": profile.Username,
		"bio":      profile.Bio,
	}
	err = r.client.updateRecord(ctx, collectionProfiles, existing.ID, fields, nil)
	if err == errNotFound {
		return entity.ErrUserNotFound
	}
	return err
}
