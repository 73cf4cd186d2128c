package validators

import "go.mongodb.org/mongo-driver/bson"

var ListingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"title",
			"location",
			"price",
			"experienceType",
			"host",
			"createdAt",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 200,
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 5000,
			},

			"location": bson.M{
				"bsonType": "object",
				"required": []string{"state", "village"},
				"properties": bson.M{
					"state":   bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
					"village": bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
					"coordinates": bson.M{
						"bsonType": "object",
						"properties": bson.M{
							"lat": bson.M{"bsonType": number["bsonType"], "minimum": -90, "maximum": 90},
							"lng": bson.M{"bsonType": number["bsonType"], "minimum": -180, "maximum": 180},
						},
					},
				},
			},

			"images": bson.M{
				"bsonType": []string{"array", "null"},
				"maxItems": 20,
				"items":    bson.M{"bsonType": "string"},
			},

			"price": bson.M{
				"bsonType": number["bsonType"],
				"minimum":  0,
			},

			"amenities": bson.M{
				"bsonType": []string{"array", "null"},
				"maxItems": 50,
				"items":    bson.M{"bsonType": "string", "minLength": 1, "maxLength": 100},
			},

			"experienceType": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 50,
			},

			"host": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"rating": bson.M{
				"bsonType": number["bsonType"],
				"minimum":  0,
				"maximum":  5,
			},

			"reviewsCount": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"createdAt": bson.M{
				"bsonType": "date",
			},
		},
	},
}
