package validators

import "go.mongodb.org/mongo-driver/bson"

var number = bson.M{"bsonType": []string{"double", "int", "long", "decimal"}}

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"listing",
			"guest",
			"host",
			"checkIn",
			"checkOut",
			"guestsCount",
			"totalPrice",
			"status",
			"createdAt",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"listing": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"guest": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"host": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"checkIn": bson.M{
				"bsonType": "date",
			},

			"checkOut": bson.M{
				"bsonType": "date",
			},

			"guestsCount": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"totalPrice": bson.M{
				"bsonType": number["bsonType"],
				"minimum":  0,
			},

			"status": bson.M{
				"enum": []string{"pending", "confirmed", "cancelled", "completed"},
			},

			"paymentId": bson.M{
				"bsonType":  "string",
				"maxLength": 255,
			},

			"paymentAmount": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"createdAt": bson.M{
				"bsonType": "date",
			},

			"updatedAt": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var BookingLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "expiresAt"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
			"expiresAt": bson.M{
				"bsonType": "date",
			},
			"createdAt": bson.M{
				"bsonType": "date",
			},
		},
	},
}
