package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
)

func handleCompletion(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("completion", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: mapexec completion [bash|zsh|fish]")
	}
	shell := fs.Arg(0)
	switch shell {
	case "bash":
		fmt.Fprint(stdout, bashCompletion)
	case "zsh":
		fmt.Fprint(stdout, zshCompletion)
	case "fish":
		fmt.Fprint(stdout, fishCompletion)
	default:
		return fmt.Errorf("unknown shell: %s", shell)
	}
	return nil
}

const bashCompletion = `# bash completion for mapexec
_mapexec_completions()
{
    local cur prev words cword
    _init_completion || return
    local cmds="catalog run tui config doctor version help completion"
    local common="--config --log-level --json --base-url --max-file-size-mb"
    if [[ ${cword} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "${cmds}" -- "$cur") )
        return
    fi
    case ${words[1]} in
        catalog)
            COMPREPLY=( $(compgen -W "${common}" -- "$cur") ) ;;
        doctor)
            COMPREPLY=( $(compgen -W "${common} --verbose" -- "$cur") ) ;;
        run)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=( $(compgen -W "${common} --mapping --batch --out --parallel --summary" -- "$cur") )
            else
                _filedir
            fi ;;
        tui)
            COMPREPLY=( $(compgen -W "${common} --theme --out" -- "$cur") ) ;;
        config)
            COMPREPLY=( $(compgen -W "validate print ${common}" -- "$cur") ) ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh fish" -- "$cur") ) ;;
        *) ;;
    esac
}
complete -F _mapexec_completions mapexec
`

const zshCompletion = `#compdef mapexec
# zsh completion for mapexec (basic)
_mapexec() {
  local -a cmds
  cmds=(catalog run tui config doctor version help completion)
  if (( CURRENT == 2 )); then
    _describe 'command' cmds
    return
  fi
  case $words[2] in
    catalog)
      _arguments '*:options:(--config --log-level --json --base-url --max-file-size-mb)'
      ;;
    doctor)
      _arguments '*:options:(--config --log-level --base-url --max-file-size-mb --verbose)'
      ;;
    run)
      _arguments '*:options:(--config --log-level --json --base-url --max-file-size-mb --mapping --batch --out --parallel --summary)' '*:file:_files'
      ;;
    tui)
      _arguments '*:options:(--config --log-level --base-url --max-file-size-mb --theme --out)'
      ;;
    config)
      _arguments '*:options:(validate print --config --log-level --json --base-url --max-file-size-mb)'
      ;;
    completion)
      _arguments '*:options:(bash zsh fish)'
      ;;
  esac
}
compdef _mapexec mapexec
`

const fishCompletion = `# fish completion for mapexec
complete -c mapexec -f -n "__fish_use_subcommand" -a "catalog" -d "list mappings"
complete -c mapexec -f -n "__fish_use_subcommand" -a "run" -d "execute a mapping"
complete -c mapexec -f -n "__fish_use_subcommand" -a "tui" -d "interactive widget"
complete -c mapexec -f -n "__fish_use_subcommand" -a "config" -d "config ops"
complete -c mapexec -f -n "__fish_use_subcommand" -a "doctor" -d "run diagnostics"
complete -c mapexec -f -n "__fish_use_subcommand" -a "version" -d "print version"
complete -c mapexec -f -n "__fish_use_subcommand" -a "completion" -d "shell completions"

# Common flags
for cmd in catalog run tui config doctor
  complete -c mapexec -n "__fish_seen_subcommand_from $cmd" -l config -d "Path to config"
  complete -c mapexec -n "__fish_seen_subcommand_from $cmd" -l log-level -d "Log level"
  complete -c mapexec -n "__fish_seen_subcommand_from $cmd" -l base-url -d "Mapping service root"
  complete -c mapexec -n "__fish_seen_subcommand_from $cmd" -l max-file-size-mb -d "Upload limit in MB"
end
complete -c mapexec -n "__fish_seen_subcommand_from config" -a "validate print"
complete -c mapexec -n "__fish_seen_subcommand_from run" -l mapping -d "Mapping id or title"
complete -c mapexec -n "__fish_seen_subcommand_from run" -l batch -d "YAML jobs file"
complete -c mapexec -n "__fish_seen_subcommand_from run" -l out -d "Result directory"
complete -c mapexec -n "__fish_seen_subcommand_from run" -l parallel -d "Files executed at once"
complete -c mapexec -n "__fish_seen_subcommand_from run" -l summary -d "Print the session journal"
complete -c mapexec -n "__fish_seen_subcommand_from doctor" -l verbose -d "Show timings"
complete -c mapexec -n "__fish_seen_subcommand_from tui" -l theme -d "dark|light"
`
