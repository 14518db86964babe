package models

// CameraListResponse represents the outer wrapper of the GET /cameras response
type CameraListResponse struct {
	Result struct {
		Cameras []CameraRecord `json:"cameras"`
	} `json:"result"`
}

// CameraDetailsResponse wraps GET /cameras/{id}
type CameraDetailsResponse struct {
	Result struct {
		Camera CameraRecord `json:"camera"`
	} `json:"result"`
}

// CameraRecord is a point-in-time snapshot of one GigE camera.
// Persistent fields, the user defined name, firmware version and the busy flag
// are only populated when the camera is reachable and persistent values were
// requested.
type CameraRecord struct {
	Serial          string `json:"serial_number"`
	ModelName       string `json:"model_name"`
	UserDefinedName string `json:"user_defined_name"`
	MACAddress      string `json:"mac_address"`

	CurrentIP      string `json:"current_ip"`
	CurrentNetmask string `json:"current_netmask"`
	CurrentGateway string `json:"current_gateway"`

	PersistentIP      string `json:"persistent_ip"`
	PersistentNetmask string `json:"persistent_netmask"`
	PersistentGateway string `json:"persistent_gateway"`

	FirmwareVersion string `json:"firmware_version"`
	InterfaceName   string `json:"interface_name"` // host NIC the camera was seen on

	IsStaticIP    bool `json:"is_static_ip"`
	IsDHCPEnabled bool `json:"is_dhcp_enabled"`
	IsReachable   bool `json:"is_reachable"`
	IsBusy        bool `json:"is_busy"`
}

// Matches reports whether identifier equals the serial, user defined name or
// MAC address of the camera.
func (c CameraRecord) Matches(identifier string) bool {
	if identifier == "" {
		return false
	}
	return c.Serial == identifier || c.UserDefinedName == identifier || c.MACAddress == identifier
}

// ControlRecord holds the raw control channel registers of a camera: the
// address of the application holding it and the heartbeat timeout.
type ControlRecord struct {
	IP                 string `json:"ip"`
	Port               uint32 `json:"port"`
	HeartbeatTimeoutUS uint32 `json:"heartbeat_timeout_us"`
}

// ControlResponse wraps GET /cameras/{id}/control
type ControlResponse struct {
	Result struct {
		Status  int           `json:"status"`
		Control ControlRecord `json:"control"`
	} `json:"result"`
}
