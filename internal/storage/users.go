package storage

import (
	"errors"
	"log"
	"slices"
	"time"

	"lingoroom/backend/internal/language"
	"lingoroom/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TouchUser upserts the user's display profile and refreshes last_activity
// in a single statement.
func (s *Service) TouchUser(user *models.User) error {
	user.LastActivity = time.Now()
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "first_name", "last_name", "last_activity"}),
	}).Create(user).Error
}

// GetUser returns the user row, or nil when the user has never been seen.
func (s *Service) GetUser(userID int64) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) SetUserDisabled(userID int64, disabled bool) error {
	return s.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Update("is_disabled", disabled).Error
}

// ToggleVoiceReplies flips the voice-reply opt-in as one statement and
// returns the new value. Read-then-write from the application side would
// race with a concurrent handler for the same user.
func (s *Service) ToggleVoiceReplies(userID int64) (bool, error) {
	var enabled bool
	err := s.DB.Raw(
		`UPDATE users SET voice_replies_enabled = NOT voice_replies_enabled
		 WHERE id = ? RETURNING voice_replies_enabled`, userID).Scan(&enabled).Error
	if err != nil {
		log.Printf("ERROR: Failed to toggle voice replies for user %d: %v", userID, err)
		return false, err
	}
	return enabled, nil
}

// IncrementMessageCount bumps the counter server-side, never via a
// read-modify-write round trip.
func (s *Service) IncrementMessageCount(userID int64) error {
	return s.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"message_count": gorm.Expr("message_count + 1"),
			"last_activity": time.Now(),
		}).Error
}

func (s *Service) IncrementVoiceResponses(userID int64) error {
	return s.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Update("voice_responses_sent", gorm.Expr("voice_responses_sent + 1")).Error
}

// GetUserPreferences returns the user's enabled target languages. A user
// with no stored rows gets the full default set.
func (s *Service) GetUserPreferences(userID int64) ([]string, error) {
	var codes []string
	err := s.DB.Model(&models.UserPreference{}).
		Where("user_id = ?", userID).
		Pluck("language_code", &codes).Error
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return language.DefaultSet(), nil
	}
	return orderPreferences(codes), nil
}

// ToggleLanguagePreference flips one language in the user's preference set
// inside a single transaction holding row locks, and returns the resulting
// set. Removing the last enabled language restores the full default set in
// the same atomic step; the stored set is never empty.
func (s *Service) ToggleLanguagePreference(userID int64, languageCode string) ([]string, error) {
	var result []string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var current []string
		err := tx.Model(&models.UserPreference{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			Pluck("language_code", &current).Error
		if err != nil {
			return err
		}

		next := togglePreference(current, languageCode)

		if err := tx.Where("user_id = ?", userID).Delete(&models.UserPreference{}).Error; err != nil {
			return err
		}
		rows := make([]models.UserPreference, 0, len(next))
		for _, code := range next {
			rows = append(rows, models.UserPreference{UserID: userID, LanguageCode: code})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}

		result = next
		return nil
	})
	if err != nil {
		log.Printf("ERROR: Failed to toggle preference %s for user %d: %v", languageCode, userID, err)
		return nil, err
	}
	return result, nil
}

// togglePreference computes the next preference set. An empty stored set
// means "all defaults", and toggling off the last language falls back to
// the full default set rather than leaving the set empty.
func togglePreference(current []string, languageCode string) []string {
	if len(current) == 0 {
		current = language.DefaultSet()
	}

	var next []string
	if slices.Contains(current, languageCode) {
		for _, code := range current {
			if code != languageCode {
				next = append(next, code)
			}
		}
		if len(next) == 0 {
			next = language.DefaultSet()
		}
	} else {
		next = append(next, current...)
		next = append(next, languageCode)
	}
	return orderPreferences(next)
}

// orderPreferences renders a preference set in the stable default-catalogue
// order so keyboards and responses do not jitter between reads.
func orderPreferences(codes []string) []string {
	var out []string
	for _, code := range language.DefaultSet() {
		if slices.Contains(codes, code) {
			out = append(out, code)
		}
	}
	for _, code := range codes {
		if !slices.Contains(out, code) {
			out = append(out, code)
		}
	}
	return out
}
