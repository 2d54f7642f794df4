package command

import (
	"strconv"
	"strings"
)

// Parse converts one wire line into a Command. Lines without a leading '/'
// are chat text. Malformed control syntax yields a *UsageError; an
// unrecognised control verb does too.
func Parse(line string) (Command, error) {
	if !strings.HasPrefix(line, "/") {
		return Chat{Text: line}, nil
	}

	verb, rest, _ := strings.Cut(line, " ")
	switch verb {
	case "/auth":
		fields := strings.Fields(rest)
		if len(fields) != 2 {
			return nil, usage("usage: /auth <login> <password>")
		}
		return Auth{Login: fields[0], Password: fields[1]}, nil

	case "/reg":
		fields := strings.Fields(rest)
		if len(fields) != 3 {
			return nil, usage("usage: /reg <login> <password> <username>")
		}
		return Register{Login: fields[0], Password: fields[1], Username: fields[2]}, nil

	case "/exit":
		return Exit{}, nil

	case "/kick":
		target, reason, ok := strings.Cut(strings.TrimSpace(rest), " ")
		if !ok || target == "" || strings.TrimSpace(reason) == "" {
			return nil, usage("usage: /kick <username> <reason>")
		}
		return Kick{Target: target, Reason: strings.TrimSpace(reason)}, nil

	case "/ban":
		parts := strings.SplitN(strings.TrimSpace(rest), " ", 3)
		if len(parts) != 3 || strings.TrimSpace(parts[2]) == "" {
			return nil, usage("usage: /ban <username> <minutes> <reason>")
		}
		minutes, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || minutes < 0 {
			return nil, usage("usage: /ban <username> <minutes> <reason>")
		}
		return Ban{Target: parts[0], Minutes: minutes, Reason: strings.TrimSpace(parts[2])}, nil

	case "/shutdown":
		return Shutdown{}, nil

	case "/activelist":
		return ActiveList{}, nil

	case "/w":
		target, text, ok := strings.Cut(strings.TrimSpace(rest), " ")
		if !ok || target == "" || strings.TrimSpace(text) == "" {
			return nil, usage("usage: /w <username> <message>")
		}
		return Whisper{Target: target, Text: strings.TrimSpace(text)}, nil

	case "/changenick":
		name := strings.TrimSpace(rest)
		if name == "" || strings.ContainsRune(name, ' ') {
			return nil, usage("usage: /changenick <newname>")
		}
		return Rename{NewName: name}, nil

	default:
		return nil, usage("unknown command: " + verb)
	}
}
