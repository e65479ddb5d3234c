package social

// Length checks operate on raw byte length, not character count.

// ValidateUsername checks that s is 3 to 20 bytes long.
func ValidateUsername(s string) error {
	if len(s) < MinUsernameLen || len(s) > MaxUsernameLen {
		return newError(ErrCodeUsernameInvalid, "username", "username is %d bytes, must be between %d and %d", len(s), MinUsernameLen, MaxUsernameLen)
	}
	return nil
}

// ValidateBio checks that s is at most 140 bytes long.
func ValidateBio(s string) error {
	if len(s) > MaxBioLen {
		return newError(ErrCodeBioTooLong, "bio", "bio is %d bytes, max %d", len(s), MaxBioLen)
	}
	return nil
}

// ValidateAvatar checks that s is at most 100 bytes long.
func ValidateAvatar(s string) error {
	if len(s) > MaxAvatarLen {
		return newError(ErrCodeAvatarTooLong, "avatar_reference", "avatar reference is %d bytes, max %d", len(s), MaxAvatarLen)
	}
	return nil
}

// ValidatePostContent checks that s is at most 280 bytes long.
func ValidatePostContent(s string) error {
	if len(s) > MaxPostLen {
		return newError(ErrCodePostTooLong, "content", "post content is %d bytes, max %d", len(s), MaxPostLen)
	}
	return nil
}

// ValidateCiphertext checks that s is at most 1000 bytes long.
func ValidateCiphertext(s string) error {
	if len(s) > MaxCiphertextLen {
		return newError(ErrCodeMessageTooLong, "encrypted_content", "message is %d bytes, max %d", len(s), MaxCiphertextLen)
	}
	return nil
}

// ValidateStructuralContent rejects post content that could change the shape
// of the canonical payload: double quotes, backslashes and control bytes.
// Only enforced when the program runs with WithStructuralContentCheck.
func ValidateStructuralContent(s string) error {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' || c < 0x20 {
			return newError(ErrCodePostContentUnsafe, "content", "byte 0x%02x at offset %d is not allowed", c, i)
		}
	}
	return nil
}

// ValidateProfileUpdate checks every present field before any is applied.
func ValidateProfileUpdate(bio, avatar *string) error {
	if bio != nil {
		if err := ValidateBio(*bio); err != nil {
			return err
		}
	}
	if avatar != nil {
		if err := ValidateAvatar(*avatar); err != nil {
			return err
		}
	}
	return nil
}
