package httpsource

import "github.com/santhosh-tekuri/jsonschema/v5"

const gameSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["main"],
  "properties": {
    "main": {
      "type": "object",
      "required": ["users"],
      "properties": {
        "parameters": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["name", "value"],
            "properties": {
              "name": {"type": "string", "minLength": 1},
              "value": {}
            }
          }
        },
        "main_avatar": {"type": ["integer", "null"]},
        "users": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["id", "code"],
            "properties": {
              "id": {"type": "integer"},
              "code": {"type": "string"}
            }
          }
        }
      }
    }
  }
}`

var schema = jsonschema.MustCompileString("game.schema.json", gameSchema)
