// Package validator validates request and dependency structs through their
// `validate` tags, backed by go-playground/validator v10 with English messages.
//
// Besides the built-in rules it registers "password" (8-128 characters) and
// "otpcode" (a 6 or 8 digit one-time code).
package validator
