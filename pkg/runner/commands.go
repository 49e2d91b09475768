package runner

// Command is one compose subcommand run in every project
type Command struct {
	Name string
	Args []string
}

// CommandOptions tweaks the default compose commands
type CommandOptions struct {
	Kill   bool // kill instead of stop
	NoRmi  bool // keep images on down
	NoPull bool // do not pull base images on build
}

func StopCommand(opts CommandOptions) Command {
	if opts.Kill {
		return Command{Name: "kill", Args: []string{"kill"}}
	}
	return Command{Name: "stop", Args: []string{"stop"}}
}

func DownCommand(opts CommandOptions) Command {
	if opts.NoRmi {
		return Command{Name: "down", Args: []string{"down"}}
	}
	return Command{Name: "down", Args: []string{"down", "--rmi", "all"}}
}

func BuildCommand(opts CommandOptions) Command {
	if opts.NoPull {
		return Command{Name: "build", Args: []string{"build"}}
	}
	return Command{Name: "build", Args: []string{"build", "--pull"}}
}

func UpCommand() Command  { return Command{Name: "up", Args: []string{"up", "-d"}} }
func PSCommand() Command  { return Command{Name: "ps", Args: []string{"ps"}} }
func TopCommand() Command { return Command{Name: "top", Args: []string{"top"}} }

// Action names a batch of commands run across all projects
type Action string

const (
	ActionNone    Action = ""
	ActionRestart Action = "restart"
	ActionStop    Action = "stop"
	ActionDown    Action = "down"
	ActionBuild   Action = "build"
	ActionUp      Action = "up"
	ActionPS      Action = "ps"
	ActionTop     Action = "top"
)

// Actions lists every runnable action in help order
var Actions = []Action{ActionRestart, ActionStop, ActionDown, ActionBuild, ActionUp, ActionPS, ActionTop}

var actionDescriptions = map[Action]string{
	ActionRestart: "Completely rebuild and rerun all projects: stop, down, build, up, ps",
	ActionStop:    "Stop all containers",
	ActionDown:    "Stop, then remove containers, networks and images of all projects",
	ActionBuild:   "Rebuild all projects",
	ActionUp:      "Start all projects in the background",
	ActionPS:      "List containers of each project",
	ActionTop:     "List running processes of each project",
}

// Description returns the one-line help text of the action
func (a Action) Description() string {
	return actionDescriptions[a]
}

// Commands returns the ordered pipeline the action runs
func (a Action) Commands(opts CommandOptions) []Command {
	switch a {
	case ActionRestart:
		return []Command{StopCommand(opts), DownCommand(opts), BuildCommand(opts), UpCommand(), PSCommand()}
	case ActionStop:
		return []Command{StopCommand(opts)}
	case ActionDown:
		return []Command{StopCommand(opts), DownCommand(opts)}
	case ActionBuild:
		return []Command{BuildCommand(opts)}
	case ActionUp:
		return []Command{UpCommand()}
	case ActionPS:
		return []Command{PSCommand()}
	case ActionTop:
		return []Command{TopCommand()}
	default:
		return nil
	}
}

// CleanStep is one resource prune run after a successful batch
type CleanStep struct {
	Description string
	Args        []string
}

// CleanSteps are run in order through the docker CLI
var CleanSteps = []CleanStep{
	{Description: "Removing all unused networks", Args: []string{"network", "prune", "-f"}},
	{Description: "Removing unused images", Args: []string{"image", "prune", "-f"}},
	{Description: "Removing build cache", Args: []string{"builder", "prune", "-f"}},
}
