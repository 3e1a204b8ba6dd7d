package usecase

// SetPasswordCompare replaces the bcrypt comparison used by Login.
func SetPasswordCompare(uc *AuthUsecase, compare func(hash, password []byte) error) {
	uc.compare = compare
}
