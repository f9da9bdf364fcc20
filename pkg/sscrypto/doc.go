/*
Package sscrypto implements the fixed cryptographic primitives that back a
SecureStore vault: AES-128-CBC with PKCS#7 padding, HMAC-SHA1 tagging,
PBKDF2-HMAC-SHA1 key derivation, and a constant-time tag comparator.

# Why CBC+HMAC instead of an AEAD mode

Modern Go code reaches for AES-GCM by default. This package deliberately
does not: the vault file format is specified bit-for-bit (so two
independent implementations, in any language, produce byte-identical
ciphertext for the same key, IV, and plaintext), and the format predates
this implementation. Changing the cipher mode would break interoperability
with every other SecureStore-format reader, so CBC+HMAC-SHA1 is the
contract, not a legacy accident to be modernized away.

# Encrypt-then-MAC discipline

	Encrypt(pt)  -> iv, PKCS7Pad(pt) -AES-CBC-> ct, HMAC-SHA1(iv || ct) -> tag
	Decrypt(blob) -> recompute tag, constant-time compare, THEN decrypt

The tag is always verified before a single byte of ciphertext is run
through the block cipher. This means a corrupted or forged blob never
reaches AES-CBC decryption, which closes off padding-oracle attacks against
CBC mode entirely: there is no observable difference between "padding was
invalid" and "the tag didn't match", because padding is never inspected
unless the tag already matched.
*/
package sscrypto
