package cli

import (
	"fmt"
	"io"
)

// BashCompletion is the bash completion script for complaintctl.
const BashCompletion = `#!/bin/bash
# Bash completion for complaintctl

_complaintctl_completion() {
    local cur prev
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    local commands="login register logout whoami dashboard complaints notifications profile prefs leaderboard completion help"
    local complaints_cmds="list show create delete stats categories"
    local notifications_cmds="list read read-all watch"
    local profile_cmds="show update password"
    local prefs_cmds="show set"
    local global_flags="-config -env -o"

    case "${prev}" in
        complaints)
            COMPREPLY=( $(compgen -W "${complaints_cmds}" -- ${cur}) )
            return 0
            ;;
        notifications)
            COMPREPLY=( $(compgen -W "${notifications_cmds}" -- ${cur}) )
            return 0
            ;;
        profile)
            COMPREPLY=( $(compgen -W "${profile_cmds}" -- ${cur}) )
            return 0
            ;;
        prefs)
            COMPREPLY=( $(compgen -W "${prefs_cmds}" -- ${cur}) )
            return 0
            ;;
        -o)
            COMPREPLY=( $(compgen -W "text json yaml" -- ${cur}) )
            return 0
            ;;
        -config|-env|-image)
            COMPREPLY=( $(compgen -f -- ${cur}) )
            return 0
            ;;
        -priority)
            COMPREPLY=( $(compgen -W "low medium high urgent" -- ${cur}) )
            return 0
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh fish" -- ${cur}) )
            return 0
            ;;
    esac

    COMPREPLY=( $(compgen -W "${commands} ${global_flags}" -- ${cur}) )
}

complete -F _complaintctl_completion complaintctl
`

// ZshCompletion is the zsh completion script for complaintctl.
const ZshCompletion = `#compdef complaintctl

_complaintctl() {
    local -a commands
    commands=(
        'login:Sign in and store the session token'
        'register:Create an account and sign in'
        'logout:Sign out and erase the session token'
        'whoami:Show the signed-in user'
        'dashboard:Show complaint statistics and recent complaints'
        'complaints:Manage complaints'
        'notifications:Read notifications'
        'profile:Show or update the profile'
        'prefs:Notification delivery preferences'
        'leaderboard:Show the points leaderboard'
        'completion:Generate shell completion script'
    )

    local -a complaints_cmds
    complaints_cmds=(
        'list:List your complaints'
        'show:Show one complaint'
        'create:Submit a complaint'
        'delete:Delete a complaint'
        'stats:Show complaint statistics'
        'categories:List complaint categories'
    )

    local -a notifications_cmds
    notifications_cmds=(
        'list:List notifications'
        'read:Mark one notification as read'
        'read-all:Mark every notification as read'
        'watch:Print new notifications as they arrive'
    )

    _arguments -C \
        '-config[YAML profile]:file:_files' \
        '-env[.env file]:file:_files' \
        '-o[Output format]:format:(text json yaml)' \
        '1: :->command' \
        '*:: :->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
                complaints)
                    _describe 'complaints command' complaints_cmds
                    ;;
                notifications)
                    _describe 'notifications command' notifications_cmds
                    ;;
                profile)
                    _values 'profile command' show update password
                    ;;
                prefs)
                    _values 'prefs command' show set
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_complaintctl "$@"
`

// FishCompletion is the fish completion script for complaintctl.
const FishCompletion = `# Fish completion for complaintctl

complete -c complaintctl -f -n "__fish_use_subcommand" -a "login" -d "Sign in"
complete -c complaintctl -f -n "__fish_use_subcommand" -a "register" -d "Create an account"
complete -c complaintctl -f -n "__fish_use_subcommand" -a "logout" -d "Sign out"
complete -c complaintctl -f -n "__fish_use_subcommand" -a "whoami" -d "Show the signed-in user"
complete -c complaintctl -f -n "__fish_use_subcommand" -a "dashboard" -d "Show statistics"
complete -c complaintctl -f -n "__fish_use_subcommand" -a "complaints" -d "Manage complaints"
complete -c complaintctl -f -n "__fish_use_subcommand" -a "notifications" -d "Read notifications"
complete -c complaintctl -f -n "__fish_use_subcommand" -a "profile" -d "Show or update the profile"
complete -c complaintctl -f -n "__fish_use_subcommand" -a "prefs" -d "Notification preferences"
complete -c complaintctl -f -n "__fish_use_subcommand" -a "leaderboard" -d "Show the leaderboard"
complete -c complaintctl -f -n "__fish_use_subcommand" -a "completion" -d "Generate shell completion"

complete -c complaintctl -f -n "__fish_seen_subcommand_from complaints" -a "list show create delete stats categories"
complete -c complaintctl -f -n "__fish_seen_subcommand_from notifications" -a "list read read-all watch"
complete -c complaintctl -f -n "__fish_seen_subcommand_from profile" -a "show update password"
complete -c complaintctl -f -n "__fish_seen_subcommand_from prefs" -a "show set"
complete -c complaintctl -f -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"

complete -c complaintctl -o config -r -d "YAML profile"
complete -c complaintctl -o env -r -d ".env file"
complete -c complaintctl -o o -x -a "text json yaml" -d "Output format"
`

// GenerateCompletion writes the completion script for shell.
func GenerateCompletion(w io.Writer, shell string) error {
	var script string

	switch shell {
	case "bash":
		script = BashCompletion
	case "zsh":
		script = ZshCompletion
	case "fish":
		script = FishCompletion
	default:
		return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish)", shell)
	}

	_, err := io.WriteString(w, script)
	return err
}
