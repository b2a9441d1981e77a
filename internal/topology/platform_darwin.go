package topology

func defaultDevices() DeviceQuerier {
	return nil
}

func newPlatformBackend(o options) (DiskBackend, error) {
	return newDarwinBackend(o), nil
}
