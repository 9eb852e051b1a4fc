// Package otp implements the time-based one-time password engine used for the
// second login factor.
//
// It covers secret generation, RFC 6238 code computation, windowed code
// verification and construction of the otpauth provisioning URI that
// authenticator apps scan.
package otp
