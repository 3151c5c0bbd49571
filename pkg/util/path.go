package util

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/richard-senior/mcp/internal/logger"
)

///////////////////////////////////////////////////////////////////////////////
/// POINT
///////////////////////////////////////////////////////////////////////////////

// Point represents a 2D point with X and Y coordinates
type Point struct {
	X, Y float64
}

func NewPoint(x float64, y float64) *Point {
	ret := &Point{
		X: x,
		Y: y,
	}
	return ret
}

///////////////////////////////////////////////////////////////////////////////
/// PATH COMMAND
///////////////////////////////////////////////////////////////////////////////

/**
* A single SVG Path Command (from the d attribute) such as 'M 5.387,5.387' etc.
 */
type PathCommand struct {
	Letter string
	Params []float64
	Points []*Point
}

/**
* Creates a new PathCommand from the given cmd string
* @param cmd string the command string such as 'M 6,5' etc
 */
func NewPathCommand(cmd string) (*PathCommand, error) {
	if cmd == "" {
		return nil, fmt.Errorf("command string cannot be empty")
	}

	// Extract the first character as the command letter
	if len(cmd) < 1 {
		return nil, fmt.Errorf("command string too short")
	}

	letter := string(cmd[0])

	// Validate that the first character is a valid SVG path command letter
	validLetters := "MLHVCSQTAZmlhvcsqtaz"
	if !strings.Contains(validLetters, letter) {
		return nil, fmt.Errorf("invalid command letter: %s", letter)
	}

	// Extract parameters (numbers) from the command
	// First, remove the command letter and trim spaces
	paramsStr := ""
	if len(cmd) > 1 {
		paramsStr = strings.TrimSpace(cmd[1:])
	}

	// Parse parameters
	var params []float64

	if paramsStr != "" {
		// Replace commas with spaces for consistent splitting
		paramsStr = strings.ReplaceAll(paramsStr, ",", " ")

		// Split by whitespace and parse each number
		parts := regexp.MustCompile(`\s+`).Split(paramsStr, -1)

		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}

			// Parse the number
			var val float64
			_, err := fmt.Sscanf(part, "%f", &val)
			if err != nil {
				return nil, fmt.Errorf("invalid parameter value: %s", part)
			}

			params = append(params, val)
		}
	}
	// calculate if there are the correct number of parameters by command letter
	switch c := letter; c {
	case "Z", "z":
		if len(params) != 0 {
			return nil, fmt.Errorf("command %s requires exactly 0 parameters", c)
		}
	case "V", "v", "H", "h":
		if len(params) != 1 {
			return nil, fmt.Errorf("command %s requires exactly 1 parameter", c)
		}
	case "M", "m", "L", "l":
		if len(params) != 2 {
			return nil, fmt.Errorf("command %s requires exactly 2 parameters", c)
		}
	case "Q", "q":
		if len(params) != 4 {
			return nil, fmt.Errorf("command %s requires exactly 4 parameters", c)
		}
	case "A", "a":
		if len(params) != 7 {
			return nil, fmt.Errorf("command %s requires exactly 7 parameters", c)
		}
	default:
		return nil, fmt.Errorf("command letter %s not currently supported", c)
	}

	// Create and return the PathCommand
	return &PathCommand{
		Letter: letter,
		Params: params,
		Points: []*Point{},
	}, nil
}

///////////////////////////////////////////////////////////////////////////////
/// PATH
///////////////////////////////////////////////////////////////////////////////

/**
* Represents the information contained in a single SVG '<path>' tag
 */
type Path struct {
	ID          string
	Points      []*Point
	PathTag     string
	CommandsStr string
	Commands    []*PathCommand
	IsClosed    bool
}

func NewPathFromPoints(points []*Point, id string) (*Path, error) {
	if points == nil || len(points) == 0 {
		return nil, fmt.Errorf("must supply an array of Points to this constructor")
	}
	if id == "" {
		id = "pathFromPoints"
	}

	// Create a simple path command string from the points
	var commandsStr strings.Builder

	// Start with a move to the first point
	commandsStr.WriteString(fmt.Sprintf("M %.6f,%.6f ", points[0].X, points[0].Y))

	// Add line commands for the rest of the points
	for i := 1; i < len(points); i++ {
		commandsStr.WriteString(fmt.Sprintf("L %.6f,%.6f ", points[i].X, points[i].Y))
	}

	// Create new Path instance
	ret := &Path{
		ID:          id,
		Points:      points,
		PathTag:     "",
		CommandsStr: commandsStr.String(),
		Commands:    []*PathCommand{},
		IsClosed:    false,
	}

	return ret, nil
}

// Constructor from an SVG <path ... /> tag
func NewPathFromSvgTag(tag string) (*Path, error) {
	if tag == "" {
		return nil, fmt.Errorf("tag cannot be empty")
	}
	// Create new Path instance
	ret := &Path{
		ID:          "",
		Points:      nil,
		PathTag:     tag,
		CommandsStr: "",
		Commands:    []*PathCommand{},
		IsClosed:    false,
	}
	err := ret.ParseSvgPathTag()
	if err != nil {
		return nil, err
	}
	// TODO auto pointalise
	return ret, nil
}

func (p *Path) ParsePathCommands() error {
	if p.CommandsStr == "" {
		return fmt.Errorf("Path must have a populated CommandsStr field before this method is called")
	}

	// Regular expression to match path commands: a letter followed by numbers
	// This regex captures each command letter and its associated parameters
	commandRegex := regexp.MustCompile(`([MLHVCSQTAZmlhvcsqtaz])[\s,]*([^MLHVCSQTAZmlhvcsqtaz]*)`)

	// Find all matches
	matches := commandRegex.FindAllStringSubmatch(p.CommandsStr, -1)

	// If no matches found, return an error
	if len(matches) == 0 {
		return fmt.Errorf("no valid path commands found")
	}

	// Parse each command
	commands := make([]*PathCommand, 0, len(matches))
	for _, match := range matches {
		if len(match) >= 2 {
			cmdStr := match[1]
			if len(match) >= 3 && match[2] != "" {
				cmdStr += " " + strings.TrimSpace(match[2])
			}

			cmd, err := NewPathCommand(cmdStr)
			if err != nil {
				return fmt.Errorf("failed to parse command '%s': %v", cmdStr, err)
			}
			commands = append(commands, cmd)
		}
	}
	// modify the instance
	p.Commands = commands
	return nil
}

func (p *Path) ParseSvgPathTag() error {
	// Validate that it's a path tag using regex
	if p.PathTag == "" {
		return fmt.Errorf("Path object must have a populated PathTag field before this method is called")
	}
	pathRegex := regexp.MustCompile(`(?i)<path[^>]*>`)
	if !pathRegex.MatchString(p.PathTag) {
		return fmt.Errorf("invalid SVG path tag format")
	}

	// Regular expressions to extract d and id attributes
	dr := regexp.MustCompile(`(?i)\sd\s*=\s*[?:'|"]([^"']*)[?:'|"]`)   // d="value"
	idr := regexp.MustCompile(`(?i)\sid\s*=\s*[?:'|"]([^"']*)[?:'|"]`) // id="value"

	// Extract the d attribute (path commands)
	dMatches := dr.FindStringSubmatch(p.PathTag)
	if len(dMatches) >= 2 {
		p.CommandsStr = dMatches[1] // Get the captured group (the actual value)

		// Parse the commands
		err := p.ParsePathCommands()
		if err != nil {
			return fmt.Errorf("failed to parse path commands: %v", err)
		}
	} else {
		return fmt.Errorf("no valid path commands found")
	}

	// Extract the id attribute
	idMatches := idr.FindStringSubmatch(p.PathTag)
	if len(idMatches) >= 2 {
		p.ID = idMatches[1] // Get the captured group (the actual value)
	}

	// Check if path is closed (ends with Z or z)
	if len(p.Commands) > 0 {
		lastCmd := p.Commands[len(p.Commands)-1]
		if lastCmd.Letter == "Z" || lastCmd.Letter == "z" {
			p.IsClosed = true
		}
	}
	// TODO somehow check what the current XY is and see if it is the same
	// as the last path command such that the path is closed
	return nil
}

func (p *Path) ToPathTag() (string, error) {
	// if the path tag is populated, just return it
	if p.PathTag != "" {
		return p.PathTag, nil
	}
	// if the path tag is not populated, try to create it
	if p.CommandsStr == "" {
		err := p.ParsePathCommands()
		if err != nil {
			return "", err
		}
	}
	// if the path tag is not populated, try to create it
	if p.CommandsStr != "" {
		p.PathTag = fmt.Sprintf("<path id=\"%s\" d=\"%s\" />", p.ID, p.CommandsStr)
		return p.PathTag, nil
	}

	if p.Points != nil && len(p.Points) > 0 {
		logger.Warn("Should be compiling path commands from Points array but not implemented yet")
	}

	return "", fmt.Errorf("Path object must have a populated PathTag field or CommandsStr field before this method is called")
}

///////////////////////////////////////////////////////////////////////////////
/// PATHS
///////////////////////////////////////////////////////////////////////////////

// Holds information about paths, which is an array of Path structures
type Paths struct {
	Paths []*Path
}

func NewPaths(paths []*Path) (*Paths, error) {
	ret := &Paths{}
	if paths == nil || len(paths) == 0 {
		ret.Paths = []*Path{}
	} else {
		ret.Paths = paths
	}
	return ret, nil
}

func (p *Paths) NumPaths() int {
	if p.Paths == nil {
		return 0
	}
	return len(p.Paths)
}

func (p *Paths) AddPath(path *Path) {
	p.Paths = append(p.Paths, path)
}

// Renders all paths in this object to a linebreak delimited string
// of SVG <path> tags
func (p *Paths) ToSVG() (string, error) {
	ret := ""
	for _, path := range p.Paths {
		path, err := path.ToPathTag()
		if err != nil {
			return "", err
		}
		ret += path + "\n"
	}
	return ret, nil
}

///////////////////////////////////////////////////////////////////////////////
/// UTIL
///////////////////////////////////////////////////////////////////////////////

func StringIsUpper(s string) bool {
	for _, charNumber := range s {
		if charNumber > 90 || charNumber < 65 {
			return false
		}
	}
	return true
}

func StringIsLower(s string) bool {
	for _, charNumber := range s {
		if charNumber > 122 || charNumber < 97 {
			return false
		}
	}
	return true
}

// GetWorkingDirectory returns the present working directory
func GetWorkingDirectory() (string, error) {
	// Use the os package to get the current working directory
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return dir, nil
}
