package main

import "fmt"

func completionMain(args []string) {
	shell := "bash"
	if len(args) > 0 && args[0] != "" {
		shell = args[0]
	}
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	default:
		exitErr("completion", fmt.Errorf("unsupported shell: %s (use bash or zsh)", shell))
	}
}

const bashCompletion = `
_agentchat_completions()
{
    local cur
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "chat exec replay sessions assistants accounts ping completion" -- "$cur") )
        return 0
    fi

    case "${COMP_WORDS[1]}" in
        completion)
            COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
            ;;
        exec)
            COMPREPLY=( $(compgen -W "--account --session --attach --timeout --json -c" -- "$cur") )
            ;;
        replay)
            COMPREPLY=( $(compgen -f -W "--width --steps --markdown" -- "$cur") )
            ;;
        sessions)
            COMPREPLY=( $(compgen -W "--account --filter --new --summary --assistant --use -c" -- "$cur") )
            ;;
        accounts)
            COMPREPLY=( $(compgen -W "--new --description -c" -- "$cur") )
            ;;
        assistants)
            COMPREPLY=( $(compgen -W "--category --categories --favorites --favorite -c" -- "$cur") )
            ;;
        *)
            COMPREPLY=( $(compgen -W "--account --session --prompt --no-markdown -c" -- "$cur") )
            ;;
    esac
}
complete -F _agentchat_completions agentchat
`

const zshCompletion = `
#compdef agentchat
_agentchat() {
    local -a subcmds
    subcmds=('chat:interactive chat (default)' 'exec:send one message and print the reply' 'replay:feed recorded envelopes through the stream reducer' 'sessions:list or create sessions' 'assistants:browse the assistant catalog' 'accounts:list or create accounts' 'ping:check credentials' 'completion:print shell completions')
    if (( CURRENT == 2 )); then
        _describe 'command' subcmds
        return
    fi
    case "$words[2]" in
        completion)
            _values 'shell' bash zsh
            ;;
        exec)
            _arguments \
                '--account[Account id]' \
                '--session[Session id]' \
                '--attach[Attach a file]' \
                '--timeout[Seconds to wait for the reply]' \
                '--json[Print records as JSON lines]' \
                '-c[Config key=value override]'
            ;;
        replay)
            _arguments \
                '--width[Render width]' \
                '--steps[Print the tree after every envelope]' \
                '--markdown[Render markdown]' \
                '*:file:_files'
            ;;
        sessions)
            _arguments \
                '--account[Account id]' \
                '--filter[Fuzzy filter]' \
                '--new[Create a session]' \
                '-c[Config key=value override]'
            ;;
        *)
            _arguments \
                '--account[Account id]' \
                '--session[Session id]' \
                '--prompt[Initial message]' \
                '--no-markdown[Plain text replies]' \
                '-c[Config key=value override]'
            ;;
    esac
}
_agentchat "$@"
`
