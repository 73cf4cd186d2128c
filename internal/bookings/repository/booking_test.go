package repository

import (
	"testing"
	"time"

	"villagestay/pkg/model"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildFilter(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter model.BookingFilter
		want   bson.M
	}{
		{"empty", model.BookingFilter{}, bson.M{}},
		{"guest", model.BookingFilter{Guest: "g1"}, bson.M{"guest": "g1"}},
		{
			"upcoming has no status",
			model.BookingFilter{CheckInFrom: &now},
			bson.M{"checkIn": bson.M{"$gte": now}},
		},
		{
			"completed",
			model.BookingFilter{Status: model.BookingCompleted, Listing: "l1"},
			bson.M{"status": model.BookingCompleted, "listing": "l1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildFilter(tt.filter))
		})
	}
}

func TestConditionFilter(t *testing.T) {
	id := primitive.NewObjectID()

	assert.Equal(t, bson.M{"_id": id}, conditionFilter(id, StatusCondition{}))
	assert.Equal(t,
		bson.M{
			"_id":    id,
			"guest":  "g1",
			"status": bson.M{"$in": []model.BookingStatus{model.BookingPending}},
		},
		conditionFilter(id, StatusCondition{Guest: "g1", From: []model.BookingStatus{model.BookingPending}}),
	)
}
