package license

// EvaluateBinding decides the binding status of a device against a
// license record. It is a pure, total function: it never fails and
// always returns one of the five BindingStatus values.
//
// A device that already has a binding is judged on that binding's status
// alone; a deactivated or blacklisted device never becomes authorized
// through this path, only an administrative action on the store can
// reverse it. An unbound device may activate while the record has spare
// device slots.
func EvaluateBinding(record LicenseRecord, deviceID string) BindingStatus {
	if binding, ok := record.DeviceBindings[deviceID]; ok {
		switch binding.Status {
		case DeviceStatusActive:
			return Authorized
		case DeviceStatusBlacklisted:
			return Blacklisted
		default:
			return Deactivated
		}
	}

	if record.CurrentDevices < record.MaxDevices {
		return CanActivate
	}
	return DeviceLimitExceeded
}
