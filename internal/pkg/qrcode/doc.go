// Package qrcode renders provisioning payloads as PNG QR codes.
//
// Images use the Q-equivalent recovery level of the encoder (about 25% of the
// symbol can be damaged) and can be returned either as raw PNG bytes or as a
// data URI ready to be embedded in an <img> tag.
package qrcode
