package config

// Schema is the JSON schema for validating configuration files
const Schema = `{
    "$schema": "http://json-schema.org/draft-07/schema#",
    "type": "object",
    "additionalProperties": false,
    "properties": {
        "access_key": {
            "type": "string",
            "description": "S3 access key id"
        },
        "secret_key": {
            "type": "string",
            "description": "S3 secret access key"
        },
        "endpoint": {
            "type": "string",
            "description": "S3-compatible endpoint, scheme optional (https assumed)"
        },
        "region": {
            "type": "string"
        },
        "bucket": {
            "type": "string",
            "pattern": "^[a-zA-Z0-9._-]*$"
        },
        "link_expiration_minutes": {
            "type": "integer",
            "description": "Pre-signed link lifetime; out-of-range values are clamped to 1-60"
        },
        "url_prefix": {
            "type": "string",
            "minLength": 1
        },
        "log_level": {
            "type": "string",
            "enum": ["debug", "info", "warn", "error"]
        },
        "log_format": {
            "type": "string",
            "enum": ["json", "console"]
        },
        "listen_addr": {
            "type": "string"
        },
        "upload_concurrency": {
            "type": "integer",
            "minimum": 1
        }
    }
}`
