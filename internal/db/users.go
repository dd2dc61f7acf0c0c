package db

import (
	"github.com/rs/zerolog/log"

	"github.com/deviflow/deviflow/internal/model"
)

func (s *pgStore) CreateUser(email, hashedPassword string, name *string) (int, error) {
	var id int
	const q = `
	INSERT INTO users (email, hashed_password, name, created_at, updated_at)
	VALUES ($1, $2, $3, now(), now())
	RETURNING id;`
	if err := s.db.Get(&id, q, email, hashedPassword, name); err != nil {
		log.Error().Err(err).Msg("CreateUser failed")
		return 0, err
	}
	return id, nil
}

func (s *pgStore) GetUserByEmail(email string) (*model.User, error) {
	var u model.User
	err := s.db.Get(&u, `SELECT * FROM users WHERE email = $1;`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *pgStore) GetUserByID(id int) (*model.User, error) {
	var u model.User
	err := s.db.Get(&u, `SELECT * FROM users WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *pgStore) GetUserByAPIKey(key string) (*model.User, error) {
	var u model.User
	err := s.db.Get(&u, `SELECT * FROM users WHERE api_key = $1;`, key)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *pgStore) UpdateUserProfile(id int, email string, name *string) error {
	_, err := s.db.Exec(`
	UPDATE users SET email = $2, name = $3, updated_at = now() WHERE id = $1;`,
		id, email, name)
	if err != nil {
		log.Error().Err(err).Int("user_id", id).Msg("UpdateUserProfile failed")
	}
	return err
}

func (s *pgStore) SetUserAPIKey(id int, key string) error {
	_, err := s.db.Exec(`UPDATE users SET api_key = $2, updated_at = now() WHERE id = $1;`, id, key)
	if err != nil {
		log.Error().Err(err).Int("user_id", id).Msg("SetUserAPIKey failed")
	}
	return err
}
