package client

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/vanishing-tictactoe/internal/apperror"
)

// ValidateAddress - checks a relay address of the form host:port.
func ValidateAddress(address string) error {
	parts := strings.Split(address, ":")
	if len(parts) != 2 {
		return fmt.Errorf("%w: %q should be host:port", apperror.ErrInvalidAddress, address)
	}

	host := parts[0]
	if host == "" || strings.ContainsAny(host, "/ ") {
		return fmt.Errorf("%w: bad host %q", apperror.ErrInvalidAddress, host)
	}

	port, err := strconv.Atoi(parts[1])
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: port must be 1-65535, got %q", apperror.ErrInvalidAddress, parts[1])
	}

	return nil
}
