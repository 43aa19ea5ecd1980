package middleware

import (
	"net"

	"github.com/gofiber/fiber/v2"
)

// LoopbackOnly rejects requests whose peer is not a loopback address with 403. It guards
// against the server being bound to a routable interface by mistake.
func LoopbackOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// c.Context().RemoteIP() is the socket peer; c.IP() could be a proxy header.
		if !allowPeer(c.Context().RemoteIP()) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "forbidden",
			})
		}
		return c.Next()
	}
}

func allowPeer(ip net.IP) bool {
	return ip != nil && ip.IsLoopback()
}

// IsLoopbackHost reports whether host names a loopback interface.
func IsLoopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
