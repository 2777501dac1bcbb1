package tgcrypt

// transport protocol tags, sent in plain or inside the obfuscated2 nonce
const (
	Abridged     = 0xef
	Intermediate = 0xee //0xeeeeeeee
	Padded       = 0xdd //0xdddddddd
	Full         = 0
)

const MaxPayloadSize = 1024 * 1024
