package constant

// AsciiArtLogo is the banner rendered on the root command's help screen.
const AsciiArtLogo = `
  ██╗  ██╗██╗███╗   ██╗ ██████╗ ██████╗  █████╗ ██╗   ██╗
  ██║ ██╔╝██║████╗  ██║██╔═══██╗██╔══██╗██╔══██╗╚██╗ ██╔╝
  █████╔╝ ██║██╔██╗ ██║██║   ██║██████╔╝███████║ ╚████╔╝
  ██╔═██╗ ██║██║╚██╗██║██║   ██║██╔══██╗██╔══██║  ╚██╔╝
  ██║  ██╗██║██║ ╚████║╚██████╔╝██║  ██║██║  ██║   ██║
  ╚═╝  ╚═╝╚═╝╚═╝  ╚═══╝ ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝`
