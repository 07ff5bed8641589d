package seqrets

// PIN SESSION:
// The applet forgets PIN verification on every SELECT and on card reset, so a PIN must
// be verified on the same Session as the protected command that follows it.

// VerifyIfProvided sends VERIFY_PIN when pin is non-empty.
func VerifyIfProvided(s *Session, pin string) error {
	if pin == "" {
		return nil
	}
	_, err := s.Transmit(INS_VERIFY_PIN, 0x00, 0x00, []byte(pin))
	return err
}

// SetPin sets the first PIN. The card refuses it when a PIN is already set.
func SetPin(s *Session, pin string) error {
	if err := validatePin(pin); err != nil {
		return err
	}
	_, err := s.Transmit(INS_SET_PIN, 0x00, 0x00, []byte(pin))
	return err
}

// ChangePin replaces oldPin with newPin. The payload is old||new with P1 = len(old).
func ChangePin(s *Session, oldPin, newPin string) error {
	if err := validatePin(newPin); err != nil {
		return err
	}
	if oldPin == "" || len(oldPin)+len(newPin) > 255 {
		return newError(KindValidation, nil, "current PIN must be 1-%d bytes", 255-len(newPin))
	}

	payload := make([]byte, 0, len(oldPin)+len(newPin))
	payload = append(payload, oldPin...)
	payload = append(payload, newPin...)

	_, err := s.Transmit(INS_CHANGE_PIN, byte(len(oldPin)), 0x00, payload)
	return err
}

func validatePin(pin string) error {
	if n := len(pin); n < MinPinLength || n > MaxPinLength {
		return newError(KindValidation, nil, "PIN must be %d-%d bytes, got %d", MinPinLength, MaxPinLength, n)
	}
	return nil
}
