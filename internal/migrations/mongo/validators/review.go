package validators

import "go.mongodb.org/mongo-driver/bson"

var ReviewValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"user", "listing", "rating", "content", "createdAt"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},
			"user": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},
			"listing": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},
			"rating": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  5,
			},
			"content": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 2000,
			},
			"categories": bson.M{
				"bsonType": []string{"array", "null"},
				"maxItems": 10,
				"items":    bson.M{"bsonType": "string"},
			},
			"helpful": bson.M{
				"bsonType": []string{"array", "null"},
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"user"},
					"properties": bson.M{
						"user":      bson.M{"bsonType": "string"},
						"createdAt": bson.M{"bsonType": "date"},
					},
				},
			},
			"createdAt": bson.M{
				"bsonType": "date",
			},
		},
	},
}
