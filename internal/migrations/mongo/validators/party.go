package validators

import "go.mongodb.org/mongo-driver/bson"

var PartyValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "name", "email", "role"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},
			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 200,
			},
			"email": bson.M{
				"bsonType":  "string",
				"maxLength": 320,
			},
			"role": bson.M{
				"bsonType": "string",
				"enum":     []string{"CLIENT", "CONSULTANT"},
			},
			"specialty": bson.M{
				"bsonType": "string",
			},
		},
	},
}
