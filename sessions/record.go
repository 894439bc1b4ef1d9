package sessions

import (
	stderrors "errors"

	apperrors "github.com/jrsteele09/go-materials-client/internal/errors"
	"github.com/pkg/errors"
)

// Save writes every slot of the session to the repo.
func Save(repo Repo, s *Session) error {
	if !s.Valid() {
		return errors.Wrap(apperrors.ErrInvalidRecord, "[sessions.Save] both tokens are required")
	}
	profile := string(s.Profile)
	if profile == "" {
		profile = "null"
	}
	slots := [][2]string{
		{SlotAccessToken, s.AccessToken},
		{SlotRefreshToken, s.RefreshToken},
		{SlotUser, profile},
	}
	for _, slot := range slots {
		if err := repo.Set(slot[0], slot[1]); err != nil {
			return errors.Wrapf(apperrors.Join(apperrors.ErrStorage, err), "[sessions.Save] slot %s", slot[0])
		}
	}
	return nil
}

// Load reads a session from the repo. It returns errors.ErrNoSession unless
// all three slots hold a value; a partial or unreadable record also matches
// ErrInvalidRecord.
func Load(repo Repo) (*Session, error) {
	found := make(map[string]string, len(Slots))
	for _, key := range Slots {
		value, err := repo.Get(key)
		if apperrors.Is(err, apperrors.ErrSlotNotFound) || (err == nil && value == "") {
			continue
		}
		if apperrors.Is(err, apperrors.ErrInvalidRecord) {
			return nil, errors.Wrapf(apperrors.Join(apperrors.ErrNoSession, err), "[sessions.Load] slot %s", key)
		}
		if err != nil {
			return nil, errors.Wrapf(apperrors.Join(apperrors.ErrStorage, err), "[sessions.Load] slot %s", key)
		}
		found[key] = value
	}

	if len(found) != len(Slots) {
		if len(found) > 0 {
			return nil, apperrors.Join(apperrors.ErrNoSession, apperrors.ErrInvalidRecord)
		}
		return nil, apperrors.ErrNoSession
	}

	return New(found[SlotAccessToken], found[SlotRefreshToken], []byte(found[SlotUser])), nil
}

// Erase deletes every slot, attempting all of them even if one fails.
func Erase(repo Repo) error {
	var errs []error
	for _, key := range Slots {
		if err := repo.Delete(key); err != nil {
			errs = append(errs, errors.Wrapf(err, "slot %s", key))
		}
	}
	if len(errs) > 0 {
		return apperrors.Join(apperrors.ErrStorage, stderrors.Join(errs...))
	}
	return nil
}
