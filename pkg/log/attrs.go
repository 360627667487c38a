package log

import "log/slog"

func FlowID[T ~string](id T) slog.Attr {
	return slog.String("flow_id", string(id))
}

func Step[T ~string](name T) slog.Attr {
	return slog.String("step", string(name))
}

func Status[T ~string](status T) slog.Attr {
	return slog.String("status", string(status))
}

func Target(target string) slog.Attr {
	return slog.String("target", target)
}

func Method[T ~string](method T) slog.Attr {
	return slog.String("method", string(method))
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}
