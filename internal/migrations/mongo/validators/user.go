package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"name", "email", "role", "passwordHash", "createdAt"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},
			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},
			"email": bson.M{
				"bsonType":  "string",
				"maxLength": 254,
				"pattern":   "^[^@\\s]+@[^@\\s]+$",
			},
			"phone": bson.M{
				"bsonType": "string",
				"pattern":  "^\\+[1-9][0-9]{7,14}$",
			},
			"role": bson.M{
				"enum": []string{"guest", "host", "admin"},
			},
			"passwordHash": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
			"createdAt": bson.M{
				"bsonType": "date",
			},
		},
	},
}
