package notify

import "github.com/wenchangshou/devicectl/internal/config"

// BuildTargets constructs one Target per notification sink configured in
// cfg. A nil cfg yields no targets, so the Sink becomes a no-op.
func BuildTargets(cfg *config.NotificationsConfig) ([]Target, error) {
	if cfg == nil {
		return nil, nil
	}
	var targets []Target
	if cfg.Discord != nil {
		t, err := NewDiscordTarget(*cfg.Discord)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	if cfg.Telegram != nil {
		t, err := NewTelegramTarget(*cfg.Telegram)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	if cfg.Email != nil {
		targets = append(targets, NewEmailTarget(*cfg.Email))
	}
	return targets, nil
}
