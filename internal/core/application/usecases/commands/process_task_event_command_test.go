package commands_test

import (
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProcessTaskEventCommand(t *testing.T) {
	eventTime := time.Date(2026, time.September, 1, 15, 0, 0, 0, time.UTC)

	t.Run("creates a valid command", func(t *testing.T) {
		photo := "https://cdn.example.com/a/800x.png"
		cmd, err := commands.NewProcessTaskEventCommand(
			"AB12", commands.EventCompleted, eventTime,
			&photo, []string{photo}, nil, nil, nil,
		)
		require.NoError(t, err)

		require.NoError(t, cmd.Validate())
		assert.Equal(t, "AB12", cmd.TaskShortID())
		assert.Equal(t, commands.EventCompleted, cmd.Trigger())
		require.NotNil(t, cmd.PhotoURL())
	})

	t.Run("requires a task short id", func(t *testing.T) {
		_, err := commands.NewProcessTaskEventCommand(
			"", commands.EventStarted, eventTime, nil, nil, nil, nil, nil,
		)
		require.ErrorIs(t, err, commands.ErrTaskShortIDIsRequired)
	})

	t.Run("rejects an unknown trigger", func(t *testing.T) {
		_, err := commands.NewProcessTaskEventCommand(
			"AB12", commands.EventTrigger("paused"), eventTime, nil, nil, nil, nil, nil,
		)
		require.ErrorIs(t, err, commands.ErrTriggerIsInvalid)
	})

	t.Run("requires an event time", func(t *testing.T) {
		_, err := commands.NewProcessTaskEventCommand(
			"AB12", commands.EventStarted, time.Time{}, nil, nil, nil, nil, nil,
		)
		require.ErrorIs(t, err, commands.ErrEventTimeIsRequired)
	})

	t.Run("zero value is not constructed", func(t *testing.T) {
		var cmd commands.ProcessTaskEventCommand
		require.ErrorIs(t, cmd.Validate(), commands.ErrProcessTaskEventCommandIsNotConstructed)
	})
}
