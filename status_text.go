package xbeeapi

// DescribeModemStatus converts a modem-status data[0] byte to a
// human-readable description of the event.
func DescribeModemStatus(status byte) string {
	switch {
	case status == 0x00:
		return "Hardware reset"
	case status == 0x01:
		return "Watchdog timer reset"
	case status == 0x02:
		return "Joined network"
	case status == 0x03:
		return "Disassociated"
	case status == 0x06:
		return "Coordinator started"
	case status == 0x07:
		return "Network security key updated"
	case status == 0x0d:
		return "Voltage supply limit exceeded"
	case status == 0x11:
		return "Modem configuration changed while join in progress"
	case status >= 0x80:
		return "Stack error"
	}
	return "Unknown status"
}

// DescribeDeliveryStatus converts a TX-status frame's delivery-status
// byte (data[0] for 0x89 frames without retry/discovery detail) into a
// human-readable description.
func DescribeDeliveryStatus(status byte) string {
	switch status {
	case 0x00:
		return "Success"
	case 0x01:
		return "MAC ACK failure"
	case 0x02:
		return "CCA failure"
	case 0x15:
		return "Invalid destination endpoint"
	case 0x21:
		return "Network ACK failure"
	case 0x22:
		return "Not joined to network"
	case 0x23:
		return "Self-addressed"
	case 0x24:
		return "Address not found"
	case 0x25:
		return "Route not found"
	case 0x26:
		return "Broadcast source failed to hear a neighbor relay the message"
	case 0x2b:
		return "Invalid binding table index"
	case 0x2c, 0x32:
		return "Resource error (lack of free buffers, timers, etc)"
	case 0x2d:
		return "Attempted broadcast with APS transmission"
	case 0x2e:
		return "Attempted unicast with APS transmission, but EE=0"
	case 0x74:
		return "Data payload too large"
	case 0x75:
		return "Indirect message unrequested"
	}
	return "Unknown status"
}
