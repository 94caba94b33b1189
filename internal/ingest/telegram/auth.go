package telegram

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"
)

// ErrSignupNotSupported indicates that signup is not supported.
var ErrSignupNotSupported = errors.New("signup not supported")

const minPhoneLength = 10

// terminalAuth answers the login prompts from configuration, falling back
// to interactive input.
type terminalAuth struct {
	phone    string
	password string
	in       *bufio.Reader
	out      io.Writer
	logger   *zerolog.Logger
}

func newTerminalAuth(phone, password string, in io.Reader, out io.Writer, logger *zerolog.Logger) *terminalAuth {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &terminalAuth{
		phone:    phone,
		password: password,
		in:       bufio.NewReader(in),
		out:      out,
		logger:   logger,
	}
}

func (a *terminalAuth) flow() auth.Flow {
	return auth.NewFlow(a, auth.SendCodeOptions{})
}

func (a *terminalAuth) prompt(label string) (string, error) {
	_, _ = fmt.Fprintf(a.out, "Enter %s: ", label)

	value, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && value != "") {
		return "", fmt.Errorf("failed to read %s: %w", label, err)
	}

	return strings.TrimSpace(value), nil
}

func (a *terminalAuth) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	return a.prompt("code")
}

func (a *terminalAuth) Phone(_ context.Context) (string, error) {
	phone := a.phone
	if phone == "" {
		var err error
		if phone, err = a.prompt("phone"); err != nil {
			return "", err
		}
	}

	phone = sanitizePhone(phone)
	a.logger.Info().Str("phone", maskPhone(phone)).Msg("Using phone number")

	if len(phone) < minPhoneLength {
		a.logger.Warn().Int("length", len(phone)).Msg("Phone number seems too short, it might be invalid. Ensure it includes country code (e.g. +1...)")
	}

	return phone, nil
}

func (a *terminalAuth) Password(_ context.Context) (string, error) {
	if a.password != "" {
		return a.password, nil
	}

	return a.prompt("2FA password")
}

func (a *terminalAuth) AcceptTermsOfService(_ context.Context, _ tg.HelpTermsOfService) error {
	return nil
}

func (a *terminalAuth) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, ErrSignupNotSupported
}

func sanitizePhone(phone string) string {
	var sb strings.Builder

	phone = strings.TrimSpace(phone)

	if strings.HasPrefix(phone, "+") {
		sb.WriteByte('+')

		phone = phone[1:]
	}

	for _, char := range phone {
		if char >= '0' && char <= '9' {
			sb.WriteRune(char)
		}
	}

	return sb.String()
}

func maskPhone(phone string) string {
	if len(phone) < 7 {
		return "****"
	}

	return phone[:3] + "****" + phone[len(phone)-2:]
}
