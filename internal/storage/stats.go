package storage

import (
	"time"

	"lingoroom/backend/internal/models"
)

// Stats is the aggregate summary served to the admin surface.
type Stats struct {
	TotalUsers         int64 `json:"total_users"`
	ActiveUsers        int64 `json:"active_users"`
	DisabledUsers      int64 `json:"disabled_users"`
	TotalRooms         int64 `json:"total_rooms"`
	ActiveRooms        int64 `json:"active_rooms"`
	TotalMessages      int64 `json:"total_messages"`
	VoiceResponsesSent int64 `json:"voice_responses_sent"`
}

// Stats aggregates usage counters. Active users are those seen in the last
// 7 days.
func (s *Service) Stats() (*Stats, error) {
	var st Stats

	if err := s.DB.Model(&models.User{}).Count(&st.TotalUsers).Error; err != nil {
		return nil, err
	}
	weekAgo := time.Now().Add(-7 * 24 * time.Hour)
	if err := s.DB.Model(&models.User{}).Where("last_activity > ?", weekAgo).Count(&st.ActiveUsers).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.User{}).Where("is_disabled").Count(&st.DisabledUsers).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Room{}).Count(&st.TotalRooms).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Room{}).Where("status = ?", models.RoomStatusActive).Count(&st.ActiveRooms).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.RoomMessage{}).Count(&st.TotalMessages).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.User{}).Select("COALESCE(SUM(voice_responses_sent), 0)").Scan(&st.VoiceResponsesSent).Error; err != nil {
		return nil, err
	}

	return &st, nil
}
